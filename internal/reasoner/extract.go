package reasoner

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/Iron-Ham/monologue/internal/conversation"
	"github.com/Iron-Ham/monologue/internal/errors"
	"github.com/Iron-Ham/monologue/internal/llm"
	"github.com/Iron-Ham/monologue/internal/util"
)

const (
	storeOptionsFunction = "store_response_options"
	chooseFunction       = "choose"

	responsesArg   = "responses"
	choiceIndexArg = "choice_index"
)

var storeOptionsSchema = llm.FunctionSchema{
	Name: storeOptionsFunction,
	Description: "Stores a list of possible response options in memory to choose from later. " +
		"E.g. ['attempt to explain mathematically', 'explain using an analogy', 'list resources to learn more']",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			responsesArg: map[string]any{
				"description": "The list of possible response options. Each element should be a short summary, not a full response.",
				"type":        "array",
				"items":       map[string]any{"type": "string"},
			},
		},
		"required": []string{responsesArg},
	},
}

func chooseSchema(n int) llm.FunctionSchema {
	return llm.FunctionSchema{
		Name:        chooseFunction,
		Description: "Chooses one of the options.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				choiceIndexArg: map[string]any{
					"description": fmt.Sprintf("The index of the option you chose. An integer from 1 to %d", n),
					"type":        "integer",
				},
			},
			"required": []string{choiceIndexArg},
		},
	}
}

// forceCall offers only schema and requires the model to call it.
func (r *Reasoner) forceCall(ctx context.Context, schema llm.FunctionSchema) (*llm.Response, error) {
	resp, err := r.complete(ctx, []llm.FunctionSchema{schema}, schema.Name)
	if err != nil {
		return nil, err
	}
	if !resp.IsFunctionCall() {
		r.logger.Warn("expected a function call",
			"function", schema.Name,
			"role", string(resp.Role),
		)
		return nil, errors.NewExtractionError(schema.Name, errors.ErrUnstructuredResponse).
			WithRole(string(resp.Role)).
			WithContent(resp.Content)
	}
	return resp, nil
}

// record appends the outcome of a structured call, attributed to the
// function the model actually called.
func (r *Reasoner) record(resp *llm.Response, fallbackName, content string) {
	name := resp.Name
	if name == "" {
		name = fallbackName
	}
	r.log.Add(conversation.RoleFunction, content, name)
}

// ParseResponseOptions asks the model to list candidate replies given the
// conversation so far. The list is recorded in the log and returned.
func (r *Reasoner) ParseResponseOptions(ctx context.Context) ([]string, error) {
	resp, err := r.forceCall(ctx, storeOptionsSchema)
	if err != nil {
		return nil, err
	}

	raw, ok := resp.Args[responsesArg]
	if !ok {
		return nil, errors.NewExtractionError(storeOptionsFunction, errors.ErrMissingArgument).
			WithMessage(fmt.Sprintf("argument %q", responsesArg))
	}
	var options []string
	if err := mapstructure.WeakDecode(raw, &options); err != nil {
		return nil, errors.NewExtractionError(storeOptionsFunction, err).
			WithMessage(fmt.Sprintf("argument %q is not a list of strings", responsesArg))
	}

	r.record(resp, storeOptionsFunction, "Stored response options:\n"+strings.Join(options, "\n"))
	r.logger.Debug("stored response options", "count", len(options))
	return options, nil
}

// Choose asks the model to pick one of options and returns its 0-based
// index. The enumeration prompt is removed from the log once the model has
// answered, and only the outcome is kept.
//
// The index is returned as decoded, even when it falls outside options,
// unless the reasoner was built WithStrictChoice.
func (r *Reasoner) Choose(ctx context.Context, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.NewValidationError("options cannot be empty").WithField("options")
	}

	var prompt strings.Builder
	prompt.WriteString(MonologuePrefix)
	prompt.WriteString("I need to record my choice as one of the following, ")
	prompt.WriteString("by calling the choose() function with the corresponding choice number:")
	prompt.WriteString("\n")
	prompt.WriteString(util.NumberedList(options))
	r.log.Add(conversation.RoleAssistant, prompt.String(), "")

	resp, err := r.forceCall(ctx, chooseSchema(len(options)))
	r.log.Pop()
	if err != nil {
		return 0, err
	}

	raw, ok := resp.Args[choiceIndexArg]
	if !ok {
		return 0, errors.NewExtractionError(chooseFunction, errors.ErrMissingArgument).
			WithMessage(fmt.Sprintf("argument %q", choiceIndexArg))
	}
	var choice int
	if err := decodeInto(raw, &choice); err != nil {
		return 0, errors.NewExtractionError(chooseFunction, err).
			WithMessage(fmt.Sprintf("argument %q is not an integer", choiceIndexArg))
	}

	index := choice - 1
	inRange := index >= 0 && index < len(options)
	if !inRange {
		if r.strictChoice {
			return 0, errors.NewChoiceError(choice, len(options))
		}
		r.logger.Warn("choice out of range", "choice", choice, "options", len(options))
	}

	outcome := fmt.Sprintf("Chose option: %d", choice)
	if inRange {
		outcome = "Chose option: " + options[index]
	}
	r.record(resp, chooseFunction, outcome)
	return index, nil
}

// ExtractInfo asks the model to fill in the single field of format and
// decodes the answer into out, which must be a non-nil pointer.
//
// When *out is a struct, the model is given the struct's fields as the
// function parameters and the whole argument object is decoded into it
// leniently: missing fields keep their zero value, unknown ones are
// ignored, and a field whose value does not convert is left at its zero
// value with a warning instead of failing the whole extraction. Any other
// type is requested as the one argument named after the field and must
// decode; integer targets reject fractional numbers. If the model answers under a different key, the alphabetically
// first key it did send is used instead.
//
// On success the filled-in template is recorded in the log.
func (r *Reasoner) ExtractInfo(ctx context.Context, format string, out any) error {
	tmpl, err := parseTemplate(format)
	if err != nil {
		return err
	}

	target := reflect.ValueOf(out)
	if !target.IsValid() || target.Kind() != reflect.Pointer || target.IsNil() {
		return errors.NewValidationError("extraction target must be a non-nil pointer").
			WithField("out").
			WithValue(fmt.Sprintf("%T", out))
	}
	elemType := target.Type().Elem()

	schema := BuildSchema(tmpl.field, format, elemType)
	resp, err := r.forceCall(ctx, schema)
	if err != nil {
		return err
	}

	var value any = resp.Args
	if !isComposite(elemType) {
		value, err = r.pickField(schema.Name, tmpl.field, resp.Args)
		if err != nil {
			return err
		}
	}

	if err := decodeInto(value, out); err != nil {
		if !isComposite(elemType) {
			return errors.NewExtractionError(schema.Name, err).
				WithMessage(fmt.Sprintf("cannot decode into %s", elemType))
		}
		dropped := decodeFields(resp.Args, target)
		r.logger.Warn("extraction fields left unset",
			"function", schema.Name,
			"fields", dropped,
			"error", err.Error(),
		)
	}

	info := tmpl.Format(formatValue(target.Elem()))
	r.record(resp, schema.Name, `Stored information: "`+info+`"`)
	return nil
}

// Extract is ExtractInfo for a value of type T.
func Extract[T any](ctx context.Context, r *Reasoner, format string) (T, error) {
	var v T
	err := r.ExtractInfo(ctx, format, &v)
	return v, err
}

// pickField returns args[field], falling back to the first remaining key in
// sorted order when the model renamed the argument.
func (r *Reasoner) pickField(function, field string, args map[string]any) (any, error) {
	if v, ok := args[field]; ok {
		return v, nil
	}
	if len(args) == 0 {
		return nil, errors.NewExtractionError(function, errors.ErrMissingArgument).
			WithMessage(fmt.Sprintf("argument %q", field))
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	r.logger.Warn("extraction argument renamed by model",
		"function", function,
		"requested", field,
		"used", keys[0],
	)
	return args[keys[0]], nil
}

func decodeInto(value, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		Squash:           true,
		DecodeHook:       rejectFractionalInts,
	})
	if err != nil {
		return err
	}
	return dec.Decode(value)
}

// decodeFields is the fallback for a composite target whose arguments did
// not decode as a whole. target is reset, then each argument is decoded on
// its own into a copy and kept only if it succeeds. The names of the
// arguments that were skipped are returned.
func decodeFields(args map[string]any, target reflect.Value) []string {
	elem := target.Elem()
	elem.Set(reflect.Zero(elem.Type()))

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var dropped []string
	for _, k := range keys {
		scratch := reflect.New(elem.Type())
		scratch.Elem().Set(elem)
		if err := decodeInto(map[string]any{k: args[k]}, scratch.Interface()); err != nil {
			dropped = append(dropped, k)
			continue
		}
		elem.Set(scratch.Elem())
	}
	return dropped
}

// rejectFractionalInts keeps weak decoding from truncating 42.9 into 42.
func rejectFractionalInts(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}

	var f float64
	switch v := data.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return data, nil
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", f)
	}
	return data, nil
}

// formatValue renders a decoded value for the stored-information message.
func formatValue(v reflect.Value) string {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "<nil>"
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		return fmt.Sprintf("%+v", v.Interface())
	}
	return fmt.Sprint(v.Interface())
}
