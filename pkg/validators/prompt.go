package validators

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/openfroyo/ucm/pkg/engine"
)

// Prompt template placeholders.
const (
	PlaceholderInput   = "{input}"
	PlaceholderHistory = "{history}"
	PlaceholderContext = "{context}"
)

// requiredPlaceholders returns the placeholders a prompt template must contain.
func requiredPlaceholders(rag bool) []string {
	if rag {
		return []string{PlaceholderInput, PlaceholderHistory, PlaceholderContext}
	}
	return []string{PlaceholderInput, PlaceholderHistory}
}

// checkPromptTemplate requires every placeholder to appear exactly once and
// every other curly brace to be doubled. field names the template in messages.
func checkPromptTemplate(template, field string, placeholders []string) error {
	unescaped := strings.NewReplacer("{{", "", "}}", "").Replace(template)

	for _, ph := range placeholders {
		switch n := strings.Count(unescaped, ph); {
		case n == 0:
			return engine.NewValidationErrorf(MsgPlaceholderMissing, ph, field)
		case n > 1:
			return engine.NewValidationErrorf(MsgPlaceholderRepeated, ph, field, n)
		}
	}

	rest := unescaped
	for _, ph := range placeholders {
		rest = strings.ReplaceAll(rest, ph, "")
	}
	if strings.ContainsAny(rest, "{}") {
		return engine.NewValidationErrorf(MsgUnescapedBraces, field, strings.Join(placeholders, ", "))
	}
	return nil
}

// checkPromptLength rejects templates longer than limit. A limit of zero
// disables the check.
func checkPromptLength(template, field string, limit int) error {
	if limit > 0 && len(template) > limit {
		return engine.NewValidationErrorf(MsgPromptTooLong, field, len(template), limit)
	}
	return nil
}

var payloadPlaceholder = regexp.MustCompile(`<<([A-Za-z0-9_\-]+)>>`)

// reservedPayloadPlaceholders are filled in at inference time rather than
// from ModelParams.
var reservedPayloadPlaceholders = map[string]bool{
	"prompt":      true,
	"temperature": true,
}

// checkPayloadSchema requires every custom <<name>> placeholder in a
// SageMaker input payload schema to be defined in ModelParams.
func checkPayloadSchema(schema string, modelParams map[string]modelParam) error {
	matches := payloadPlaceholder.FindAllStringSubmatch(schema, -1)
	hasPrompt := false
	for _, m := range matches {
		name := m[1]
		if name == "prompt" {
			hasPrompt = true
		}
		if reservedPayloadPlaceholders[name] {
			continue
		}
		if _, ok := modelParams[name]; !ok {
			return engine.NewValidationErrorf(MsgSageMakerPlaceholderUndefined, name)
		}
	}
	if !hasPrompt {
		return engine.NewValidationError(MsgSageMakerPromptMissing)
	}
	return nil
}

// schemaText renders a payload schema given either as text or as a JSON object.
func schemaText(schema any) string {
	if s, ok := schema.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(schema); err != nil {
		return fmt.Sprint(schema)
	}
	return buf.String()
}
