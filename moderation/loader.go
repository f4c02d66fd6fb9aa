package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	courerrors "courier/errors"
)

//go:embed censored/*.txt
var censoredFS embed.FS

// WordList carries the loaded words plus metadata for startup logging.
type WordList struct {
	Words     []string
	Languages []string
}

// LoadEmbedded reads the word lists shipped with the binary. One file per
// language, one word per line.
func LoadEmbedded() (*WordList, error) {
	return loadDir(censoredFS, "censored")
}

func loadDir(fsys fs.FS, dir string) (*WordList, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var languages []string
	unique := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, dir+"/"+entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles \n and \r\n line endings alike.
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				unique[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(unique) == 0 {
		return nil, courerrors.ErrEmptyWords
	}

	words := make([]string, 0, len(unique))
	for w := range unique {
		words = append(words, w)
	}
	return &WordList{Words: words, Languages: languages}, nil
}
