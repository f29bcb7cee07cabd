package filetype

// Built-in detection tables. User rules registered on a Detector are
// consulted before any of these.

var extensions = map[string]string{
	"c":          "c",
	"h":          "c",
	"cc":         "c",
	"cpp":        "c",
	"cxx":        "c",
	"hh":         "c",
	"hpp":        "c",
	"css":        "css",
	"diff":       "diff",
	"go":         "go",
	"html":       "html",
	"htm":        "html",
	"ini":        "ini",
	"java":       "java",
	"js":         "javascript",
	"mjs":        "javascript",
	"json":       "json",
	"lua":        "lua",
	"md":         "markdown",
	"markdown":   "markdown",
	"mk":         "make",
	"patch":      "diff",
	"pl":         "perl",
	"pm":         "perl",
	"py":         "python",
	"rb":         "ruby",
	"rs":         "rust",
	"sh":         "sh",
	"bash":       "sh",
	"sql":        "sql",
	"syntax":     "config",
	"tex":        "tex",
	"toml":       "toml",
	"ts":         "typescript",
	"xml":        "xml",
	"yaml":       "yaml",
	"yml":        "yaml",
	"zsh":        "sh",
	"dockerfile": "docker",
}

var basenames = map[string]string{
	"APKBUILD":       "sh",
	"BUILD.bazel":    "python",
	"CMakeLists.txt": "cmake",
	"Dockerfile":     "docker",
	"GNUmakefile":    "make",
	"Gemfile":        "ruby",
	"Makefile":       "make",
	"Makefile.am":    "make",
	"Makefile.in":    "make",
	"PKGBUILD":       "sh",
	"Rakefile":       "ruby",
	"Vagrantfile":    "ruby",
	"bashrc":         "sh",
	".bashrc":        "sh",
	".bash_profile":  "sh",
	".editorconfig":  "ini",
	".gitconfig":     "ini",
	".gitmodules":    "ini",
	".luacheckrc":    "lua",
	".profile":       "sh",
	".zshrc":         "sh",
	"go.mod":         "gomod",
	"go.sum":         "gosum",
	"meson.build":    "meson",
	"nginx.conf":     "nginx",
}

var interpreters = map[string]string{
	"ash":     "sh",
	"awk":     "awk",
	"bash":    "sh",
	"dash":    "sh",
	"gawk":    "awk",
	"ksh":     "sh",
	"lua":     "lua",
	"mksh":    "sh",
	"node":    "javascript",
	"perl":    "perl",
	"php":     "php",
	"python":  "python",
	"python2": "python",
	"python3": "python",
	"ruby":    "ruby",
	"sed":     "sed",
	"sh":      "sh",
	"tcsh":    "sh",
	"zsh":     "sh",
}

// ignoredExts are backup suffixes skipped when picking an extension.
var ignoredExts = map[string]bool{
	"bak":       true,
	"dpkg-dist": true,
	"dpkg-old":  true,
	"new":       true,
	"old":       true,
	"orig":      true,
	"pacnew":    true,
	"pacorig":   true,
	"pacsave":   true,
	"rpmnew":    true,
	"rpmsave":   true,
}
