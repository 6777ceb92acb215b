package tools

import "github.com/mark3labs/mcp-go/mcp"

// getString extracts an optional string parameter from the request.
func getString(req mcp.CallToolRequest, key string) (string, bool) {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		if val, ok := args[key].(string); ok {
			return val, true
		}
	}
	return "", false
}

// getStringSlice extracts an optional string-array parameter from the request.
func getStringSlice(req mcp.CallToolRequest, key string) ([]string, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := args[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
