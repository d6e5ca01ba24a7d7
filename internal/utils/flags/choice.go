package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefix       = "<"
	choicePlaceholderSuffix       = ">"
	choiceSeparatorLiteral        = "|"
	choiceUsageTemplate           = "%s %s"
	choiceTypeName                = "choice"
	unsupportedChoiceErrorMessage = "unsupported value %q, expected one of %s"
)

// ChoiceValue is a pflag.Value that accepts only a closed set of lowercase options.
type ChoiceValue struct {
	current string
	choices []string
}

var _ pflag.Value = (*ChoiceValue)(nil)

// NewChoiceValue constructs a ChoiceValue initialised to defaultChoice.
func NewChoiceValue(defaultChoice string, choices []string) *ChoiceValue {
	normalizedChoices := normalizeChoices(choices)
	return &ChoiceValue{current: strings.ToLower(strings.TrimSpace(defaultChoice)), choices: normalizedChoices}
}

// String returns the selected option.
func (value *ChoiceValue) String() string {
	if value == nil {
		return ""
	}
	return value.current
}

// Set validates and stores the option.
func (value *ChoiceValue) Set(candidate string) error {
	normalizedCandidate := strings.ToLower(strings.TrimSpace(candidate))
	for _, choice := range value.choices {
		if choice == normalizedCandidate {
			value.current = normalizedCandidate
			return nil
		}
	}
	return fmt.Errorf(unsupportedChoiceErrorMessage, candidate, strings.Join(value.choices, ", "))
}

// Type reports the flag type shown in help output.
func (value *ChoiceValue) Type() string {
	return choiceTypeName
}

// Usage renders the help text with the default option capitalised, for example <STRUCTURED|raw>.
func (value *ChoiceValue) Usage(description string) string {
	return FormatChoiceUsage(value.current, value.choices, description)
}

// FormatChoiceUsage builds a usage string where the default option is capitalized inside a placeholder.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayed := make([]string, 0, len(choices))
	for _, choice := range normalizeChoices(choices) {
		if choice == normalizedDefault {
			displayed = append(displayed, strings.ToUpper(choice))
			continue
		}
		displayed = append(displayed, choice)
	}

	placeholder := choicePlaceholderPrefix + strings.Join(displayed, choiceSeparatorLiteral) + choicePlaceholderSuffix
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return placeholder
	}
	return fmt.Sprintf(choiceUsageTemplate, placeholder, trimmedDescription)
}

func normalizeChoices(choices []string) []string {
	normalized := make([]string, 0, len(choices))
	seen := make(map[string]struct{}, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.ToLower(strings.TrimSpace(choice))
		if len(trimmedChoice) == 0 {
			continue
		}
		if _, exists := seen[trimmedChoice]; exists {
			continue
		}
		seen[trimmedChoice] = struct{}{}
		normalized = append(normalized, trimmedChoice)
	}
	return normalized
}

// ResolveChoice returns the flag value when it was set explicitly, otherwise the configured value,
// falling back to the flag default when nothing is configured.
func ResolveChoice(flagSet *pflag.FlagSet, flagName string, configuredValue string) string {
	flag := flagSet.Lookup(flagName)
	if flag != nil && flag.Changed {
		return flag.Value.String()
	}
	if trimmedConfiguredValue := strings.TrimSpace(configuredValue); len(trimmedConfiguredValue) > 0 {
		return trimmedConfiguredValue
	}
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}
