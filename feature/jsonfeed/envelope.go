package jsonfeed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"unisync/core/catalog"
	"unisync/core/utils"
)

// envelope is one decoded page.
type envelope struct {
	Items []json.RawMessage
	Next  string
}

var listKeys = []string{"data", "items", "results", "records"}

// decodeEnvelope accepts a bare array or an object holding the list under
// one of listKeys with an optional next link (string, or links.next).
func decodeEnvelope(body []byte) (envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return envelope{}, errors.New("empty body")
	}

	if body[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return envelope{}, fmt.Errorf("invalid json array: %w", err)
		}
		return envelope{Items: items}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return envelope{}, fmt.Errorf("invalid json: %w", err)
	}

	var env envelope
	found := false
	for _, key := range listKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &env.Items); err != nil {
			return envelope{}, fmt.Errorf("%s is not a list: %w", key, err)
		}
		found = true
		break
	}
	if !found {
		return envelope{}, errors.New("no list field in response")
	}

	env.Next = nextLink(obj)
	return env, nil
}

func nextLink(obj map[string]json.RawMessage) string {
	var next any
	if raw, ok := obj["next"]; ok {
		_ = json.Unmarshal(raw, &next)
	} else if raw, ok := obj["links"]; ok {
		var links map[string]any
		if json.Unmarshal(raw, &links) == nil {
			next = links["next"]
		}
	}
	return utils.ToString(next)
}

// decodeRecord decodes one item into the record type of category. Field
// names follow the catalog JSON tags.
func decodeRecord(category catalog.Category, raw json.RawMessage) (catalog.Record, error) {
	switch category {
	case catalog.CategoryFaculty:
		return decodeAs[catalog.Faculty](raw)
	case catalog.CategorySubject:
		return decodeAs[catalog.Subject](raw)
	case catalog.CategoryTerm:
		return decodeAs[catalog.Term](raw)
	case catalog.CategoryCourse:
		return decodeAs[catalog.Course](raw)
	case catalog.CategorySection:
		return decodeAs[catalog.Section](raw)
	case catalog.CategoryExam:
		return decodeAs[catalog.Exam](raw)
	case catalog.CategoryInstructor:
		return decodeAs[catalog.Instructor](raw)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

func decodeAs[T catalog.Record](raw json.RawMessage) (catalog.Record, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
