package hlcache

import (
	"slices"
	"testing"

	"pgregory.net/rapid"
)

// lineCorpus biases edits toward quote-bearing lines so that start
// states actually flip between plain and in-string across edits.
var lineCorpus = []string{
	"",
	"plain text",
	`"`,
	`a "quoted" b`,
	`open " and never close`,
	`" close first`,
	`"" empty pair`,
	"tab\tand stuff",
}

// TestCacheMatchesFromScratch drives the cache through a random edit
// script, with the required notification after every edit, and checks
// every line's colors against a cold cache over the final content.
func TestCacheMatchesFromScratch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g, _, _ := buildStringGraph(t)
		src := &sliceSource{
			lines: rapid.SliceOfN(rapid.SampledFrom(lineCorpus), 1, 8).Draw(t, "lines"),
		}
		cache := New(g, src)

		steps := rapid.IntRange(0, 20).Draw(t, "steps")
		for s := 0; s < steps; s++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0: // insert lines
				pos := rapid.IntRange(0, len(src.lines)).Draw(t, "ipos")
				ins := rapid.SliceOfN(rapid.SampledFrom(lineCorpus), 1, 3).Draw(t, "ins")
				src.lines = slices.Insert(src.lines, pos, ins...)
				cache.LinesInserted(pos, len(ins))
			case 1: // delete lines, keeping at least one
				if len(src.lines) < 2 {
					continue
				}
				pos := rapid.IntRange(0, len(src.lines)-1).Draw(t, "dpos")
				maxN := len(src.lines) - pos
				if keep := len(src.lines) - 1; maxN > keep {
					maxN = keep
				}
				n := rapid.IntRange(1, maxN).Draw(t, "dn")
				src.lines = slices.Delete(src.lines, pos, pos+n)
				cache.LinesDeleted(pos, n)
			case 2: // rewrite one line in place
				pos := rapid.IntRange(0, len(src.lines)-1).Draw(t, "mpos")
				src.lines[pos] = rapid.SampledFrom(lineCorpus).Draw(t, "repl")
				cache.LineModified(pos)
			case 3: // render some line, warming the cache unevenly
				pos := rapid.IntRange(0, len(src.lines)-1).Draw(t, "rpos")
				cache.LineColors(pos)
			}
		}

		fresh := New(g, src)
		for i := range src.lines {
			got := lineColorsCopy(cache, i)
			want := lineColorsCopy(fresh, i)
			if !slices.Equal(got, want) {
				t.Fatalf("line %d: incremental %v != from-scratch %v (content %q)",
					i, got, want, src.lines[i])
			}
		}
	})
}

// TestRenderSweepMatchesFromScratch mimics the renderer's pattern:
// after each edit, sweep LineColors top to bottom and stop early when
// nextChanged goes false, then verify nothing went stale.
func TestRenderSweepMatchesFromScratch(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g, _, _ := buildStringGraph(t)
		src := &sliceSource{
			lines: rapid.SliceOfN(rapid.SampledFrom(lineCorpus), 2, 6).Draw(t, "lines"),
		}
		cache := New(g, src)
		for i := range src.lines {
			cache.LineColors(i)
		}

		pos := rapid.IntRange(0, len(src.lines)-1).Draw(t, "pos")
		src.lines[pos] = rapid.SampledFrom(lineCorpus).Draw(t, "repl")
		cache.LineModified(pos)

		for i := pos; i < len(src.lines); i++ {
			_, nextChanged := cache.LineColors(i)
			if !nextChanged {
				break
			}
		}

		fresh := New(g, src)
		for i := range src.lines {
			got := lineColorsCopy(cache, i)
			want := lineColorsCopy(fresh, i)
			if !slices.Equal(got, want) {
				t.Fatalf("line %d: incremental %v != from-scratch %v", i, got, want)
			}
		}
	})
}
