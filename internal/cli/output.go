package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs a command response in the configured format
func (o *Output) Print(result map[string]any) {
	if o.format == "json" {
		o.printJSON(result)
		return
	}
	o.printFields(result, "")
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// printFields renders a field map as sorted "key: value" lines. List
// and map values print as indented blocks. The status and rotated
// challenge fields are protocol plumbing, not payload, so text mode
// drops them.
func (o *Output) printFields(fields map[string]any, indent string) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if indent == "" && (key == "error" || key == "challenge" || key == "salt") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		switch value := fields[key].(type) {
		case map[string]any:
			fmt.Printf("%s%s:\n", indent, key)
			o.printFields(value, indent+"  ")
		case []any:
			fmt.Printf("%s%s (%d):\n", indent, key, len(value))
			for _, item := range value {
				if m, ok := item.(map[string]any); ok {
					o.printFields(m, indent+"  ")
					fmt.Println()
				} else {
					fmt.Printf("%s  - %v\n", indent, item)
				}
			}
		case float64:
			// JSON numbers decode as float64; most of ours are counts.
			if value == float64(int64(value)) {
				fmt.Printf("%s%s: %d\n", indent, key, int64(value))
			} else {
				fmt.Printf("%s%s: %v\n", indent, key, value)
			}
		default:
			fmt.Printf("%s%s: %v\n", indent, key, value)
		}
	}
}
