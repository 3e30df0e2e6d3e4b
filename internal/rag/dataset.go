package rag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// squadFile mirrors the parts of the SQuAD layout that are indexed:
// data[].title and data[].paragraphs[].context.
type squadFile struct {
	Data []struct {
		Title      string `json:"title"`
		Paragraphs []struct {
			Context string `json:"context"`
		} `json:"paragraphs"`
	} `json:"data"`
}

// LoadSQuAD reads a SQuAD-shaped JSON file and returns its passages.
// See ParseSQuAD for the extraction rules.
func LoadSQuAD(path string, maxDocuments int) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	docs, err := ParseSQuAD(f, maxDocuments)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return docs, nil
}

// ParseSQuAD extracts one Document per distinct paragraph context, in file
// order. Repeated contexts keep their first occurrence. IDs are assigned
// 0..n-1 after deduplication. At most maxDocuments passages are returned;
// maxDocuments <= 0 means no cap.
func ParseSQuAD(r io.Reader, maxDocuments int) ([]Document, error) {
	var file squadFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if file.Data == nil {
		return nil, fmt.Errorf("missing top-level \"data\" array")
	}

	seen := make(map[string]struct{})
	docs := make([]Document, 0)
	for _, article := range file.Data {
		for _, p := range article.Paragraphs {
			if _, dup := seen[p.Context]; dup {
				continue
			}
			seen[p.Context] = struct{}{}

			docs = append(docs, Document{
				ID:    len(docs),
				Title: article.Title,
				Text:  p.Context,
			})
			if maxDocuments > 0 && len(docs) == maxDocuments {
				return docs, nil
			}
		}
	}
	return docs, nil
}
