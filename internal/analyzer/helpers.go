package analyzer

// Record field accessors. API payloads are decoded into loose maps;
// these keep the reference analyzers out of the type-assertion weeds.

func strField(rec map[string]any, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func floatField(rec map[string]any, key string) (float64, bool) {
	switch v := rec[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func boolField(rec map[string]any, key string) bool {
	v, _ := rec[key].(bool)
	return v
}

func sliceField(rec map[string]any, key string) []any {
	v, _ := rec[key].([]any)
	return v
}

func mapField(rec map[string]any, key string) map[string]any {
	v, _ := rec[key].(map[string]any)
	return v
}
