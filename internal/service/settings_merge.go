package service

// deepMerge returns a new document: nested objects merge key by key,
// arrays and scalars from src replace those in dst. Neither input is modified.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if srcObj, ok := v.(map[string]any); ok {
			dstObj, _ := out[k].(map[string]any)
			out[k] = deepMerge(dstObj, srcObj)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneDocument(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
