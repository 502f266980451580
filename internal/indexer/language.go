package indexer

import "strings"

// languageForExt maps a file extension onto the language name the
// chunker's symbol extractor expects. An unmapped extension returns ""
// which CodeChunk treats as "no symbols available" and falls back to
// plain text chunking.
func languageForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".go":
		return "go"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".js", ".mjs":
		return "javascript"
	case ".jsx":
		return "jsx"
	case ".py":
		return "python"
	default:
		return ""
	}
}
