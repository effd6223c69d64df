package codec

import (
	"bytes"
	"testing"
)

type benchCell struct {
	Address map[string]string `json:"address"`
	Value   float64           `json:"value"`
}

type benchDocument struct {
	Put    string `json:"put"`
	Fields struct {
		ID        int64     `json:"id"`
		Text      string    `json:"text"`
		Embedding []float64 `json:"embedding"`
	} `json:"fields"`
}

// decodeLoop measures decoding data into a fresh T per iteration.
func decodeLoop[T any](c Codec, data []byte) func(*testing.B) {
	return func(b *testing.B) {
		b.ReportAllocs()
		b.SetBytes(int64(len(data)))
		for b.Loop() {
			var v T
			if err := c.Unmarshal(data, &v); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func denseDocument(dim int) benchDocument {
	var doc benchDocument
	doc.Put = "id:wiki:paragraph::42"
	doc.Fields.ID = 42
	doc.Fields.Text = "the quick brown fox jumps over the lazy dog"
	doc.Fields.Embedding = make([]float64, dim)
	for i := range doc.Fields.Embedding {
		doc.Fields.Embedding[i] = float64(i%17) / 17
	}
	return doc
}

func BenchmarkDecode_Document(b *testing.B) {
	data := MustMarshal(JSON{}, denseDocument(384))

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name()+"/typed", decodeLoop[benchDocument](c, data))
		b.Run(c.Name()+"/untyped", decodeLoop[any](c, data))
	}
}

func BenchmarkDecode_Cells(b *testing.B) {
	cells := make([]benchCell, 96)
	for i := range cells {
		cells[i] = benchCell{Address: map[string]string{"x": string(rune('0' + i%10))}, Value: float64(i)}
	}
	data := MustMarshal(JSON{}, map[string]any{"embedding": map[string]any{"cells": cells}})

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), decodeLoop[map[string]any](c, data))
	}
}

func BenchmarkEachElement_Corpus(b *testing.B) {
	docs := make([]benchDocument, 200)
	for i := range docs {
		docs[i] = denseDocument(128)
	}
	data := MustMarshal(JSON{}, docs)

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		b.Run(c.Name(), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				n := 0
				err := EachElement(c, bytes.NewReader(data), func(int, any) error {
					n++
					return nil
				})
				if err != nil || n != len(docs) {
					b.Fatalf("decoded %d documents: %v", n, err)
				}
			}
		})
	}
}
