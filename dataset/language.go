package dataset

import (
	"path"
	"strings"
)

// Language is a programming language recognized from a file extension.
// The zero value is not a language.
type Language uint8

const (
	C Language = iota + 1
	Cpp
	CSharp
	Go
	Java
	JavaScript
	TypeScript
	Python
	Ruby
	PHP
	Rust
	Scala
	Kotlin
	Swift
	ObjectiveC
	Shell
	Haskell
	Perl
	Clojure
	Erlang
	Elixir
	Lua
	R
	Dart
	CoffeeScript
)

var languageNames = map[Language]string{
	C:            "C",
	Cpp:          "C++",
	CSharp:       "C#",
	Go:           "Go",
	Java:         "Java",
	JavaScript:   "JavaScript",
	TypeScript:   "TypeScript",
	Python:       "Python",
	Ruby:         "Ruby",
	PHP:          "PHP",
	Rust:         "Rust",
	Scala:        "Scala",
	Kotlin:       "Kotlin",
	Swift:        "Swift",
	ObjectiveC:   "Objective-C",
	Shell:        "Shell",
	Haskell:      "Haskell",
	Perl:         "Perl",
	Clojure:      "Clojure",
	Erlang:       "Erlang",
	Elixir:       "Elixir",
	Lua:          "Lua",
	R:            "R",
	Dart:         "Dart",
	CoffeeScript: "CoffeeScript",
}

var languageExtensions = map[Language][]string{
	C:            {".c", ".h"},
	Cpp:          {".cc", ".cpp", ".cxx", ".c++", ".hh", ".hpp", ".hxx", ".h++"},
	CSharp:       {".cs"},
	Go:           {".go"},
	Java:         {".java"},
	JavaScript:   {".js", ".mjs", ".cjs", ".jsx"},
	TypeScript:   {".ts", ".tsx"},
	Python:       {".py", ".pyw", ".pyi"},
	Ruby:         {".rb"},
	PHP:          {".php", ".phtml"},
	Rust:         {".rs"},
	Scala:        {".scala", ".sc"},
	Kotlin:       {".kt", ".kts"},
	Swift:        {".swift"},
	ObjectiveC:   {".m", ".mm"},
	Shell:        {".sh", ".bash", ".zsh"},
	Haskell:      {".hs", ".lhs"},
	Perl:         {".pl", ".pm"},
	Clojure:      {".clj", ".cljs", ".cljc", ".edn"},
	Erlang:       {".erl", ".hrl"},
	Elixir:       {".ex", ".exs"},
	Lua:          {".lua"},
	R:            {".r"},
	Dart:         {".dart"},
	CoffeeScript: {".coffee", ".litcoffee"},
}

// extensions maps a lower-case extension to its language.
var extensions = func() map[string]Language {
	m := make(map[string]Language)
	for l, exts := range languageExtensions {
		for _, ext := range exts {
			m[ext] = l
		}
	}
	return m
}()

// String returns the display name of the language.
func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return "Unknown"
}

// Languages returns every known language in declaration order.
func Languages() []Language {
	out := make([]Language, 0, len(languageNames))
	for l := C; l <= CoffeeScript; l++ {
		out = append(out, l)
	}
	return out
}

// ParseLanguage looks a language up by its display name, ignoring case.
func ParseLanguage(name string) (Language, bool) {
	for l, n := range languageNames {
		if strings.EqualFold(n, name) {
			return l, true
		}
	}
	return 0, false
}

// LanguageFromPath detects the language of a file from its extension.
func LanguageFromPath(location string) (Language, bool) {
	ext := strings.ToLower(path.Ext(location))
	if ext == "" {
		return 0, false
	}
	l, ok := extensions[ext]
	return l, ok
}
