package faq

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry is one canned question/answer pair. Tags widen the token set used
// for similarity scoring but are not required.
type Entry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Tags     []string `json:"tags,omitempty"`
}

// Load reads the FAQ dataset from disk. The dataset is immutable after
// startup.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq dataset: %w", err)
	}
	return Parse(data)
}

// Parse accepts either a JSON array of entries or an object mapping
// question keys (underscores read as spaces) to answer strings.
func Parse(data []byte) ([]Entry, error) {
	var list []Entry
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse faq dataset: %w", err)
	}
	entries := make([]Entry, 0, len(obj))
	for k, v := range obj {
		entries = append(entries, Entry{
			Question: strings.ReplaceAll(k, "_", " "),
			Answer:   v,
		})
	}
	return entries, nil
}
