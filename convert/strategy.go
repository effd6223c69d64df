package convert

// Strategy selects the object inside a document that carries the embedding
// field. Locate reports false when the strategy does not apply.
type Strategy struct {
	Name   string
	Locate func(doc map[string]any) (map[string]any, bool)
}

// FieldsWrapper looks inside a "fields" object, the layout of feed documents.
var FieldsWrapper = Strategy{Name: "fields", Locate: wrapper("fields")}

// PutWrapper looks inside a "put" object.
var PutWrapper = Strategy{Name: "put", Locate: wrapper("put")}

// Document uses the document itself.
var Document = Strategy{
	Name:   "document",
	Locate: func(doc map[string]any) (map[string]any, bool) { return doc, true },
}

// DefaultStrategies returns the lookup chain fields, put, document.
func DefaultStrategies() []Strategy {
	return []Strategy{FieldsWrapper, PutWrapper, Document}
}

func wrapper(key string) func(map[string]any) (map[string]any, bool) {
	return func(doc map[string]any) (map[string]any, bool) {
		inner, ok := doc[key].(map[string]any)
		return inner, ok
	}
}

// extract walks the strategies in order and returns the first embedding that
// parses. The error of the last failing candidate is returned when none does.
func extract(doc map[string]any, strategies []Strategy, field string, lim cellLimits) ([]float32, error) {
	err := errNoEmbedding
	for _, s := range strategies {
		obj, ok := s.Locate(doc)
		if !ok {
			continue
		}
		tensor, ok := obj[field]
		if !ok || tensor == nil {
			continue
		}
		values, terr := parseTensor(tensor, lim)
		if terr == nil {
			return values, nil
		}
		err = terr
	}
	return nil, err
}
