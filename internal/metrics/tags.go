package metrics

// Tag builds a "key:value" tag.
func Tag(key, value string) string {
	return key + ":" + value
}

// TierTag names a lookup tier (volatile, persistent, remote).
func TierTag(tier string) string { return Tag("tier", tier) }

// SourceTag names the upstream that produced a payload.
func SourceTag(source string) string { return Tag("source", source) }

// ReasonTag names why a quota decision was made. Empty becomes "unknown".
func ReasonTag(reason string) string {
	if reason == "" {
		reason = "unknown"
	}
	return Tag("reason", reason)
}

func OperationTag(op string) string { return Tag("operation", op) }

func StatusTag(status string) string { return Tag("status", status) }

func LayerTag(layer string) string { return Tag("layer", layer) }

func CircuitStateTag(state string) string { return Tag("circuit_state", state) }
