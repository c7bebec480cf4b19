// Package source collects the .http scripts a run operates on.
// Arguments may be files, directories walked for .http files, or
// "path#N" forms selecting a single request by its 1-based position.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Item is one script to execute: the file's raw text plus an optional
// request selection. A zero Index selects every request in the file.
type Item struct {
	Path  string
	Index int
	Text  string
}

// Collect expands args into script items. Directory arguments are
// walked recursively for .http files in sorted order.
func Collect(args []string) ([]Item, error) {
	var items []Item
	for _, arg := range args {
		path, index, err := splitSelection(arg)
		if err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading source %s: %w", path, err)
		}

		if info.IsDir() {
			if index != 0 {
				return nil, fmt.Errorf("cannot select a request inside directory %s", path)
			}
			files, err := collectDir(path)
			if err != nil {
				return nil, err
			}
			for _, file := range files {
				item, err := readItem(file, 0)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			continue
		}

		item, err := readItem(path, index)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// splitSelection splits a trailing "#N" off arg. A "#" suffix that is
// not a positive integer is treated as part of the path.
func splitSelection(arg string) (string, int, error) {
	pos := strings.LastIndex(arg, "#")
	if pos < 0 {
		return arg, 0, nil
	}

	index, err := strconv.Atoi(arg[pos+1:])
	if err != nil {
		return arg, 0, nil
	}
	if index < 1 {
		return "", 0, fmt.Errorf("request selection in %s must be positive", arg)
	}
	return arg[:pos], index, nil
}

func collectDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".http") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func readItem(path string, index int) (Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Item{}, fmt.Errorf("reading source %s: %w", path, err)
	}
	return Item{Path: path, Index: index, Text: string(data)}, nil
}
