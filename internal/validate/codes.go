// Package validate implements the Workflow Validator (C2): a fixed-order,
// multi-pass static analyzer over a workflow graph. Later passes may read
// but never mutate findings from earlier passes.
package validate

// Stable, machine-readable finding codes (§4.3, §8). The auto-fixer and
// any caller-side tooling dispatch on these, never on Message text.
const (
	CodeMissingField          = "MISSING_FIELD"
	CodeEmptyName             = "EMPTY_NAME"
	CodeNoNodes               = "NO_NODES"
	CodeSingleNodeNotWebhook  = "SINGLE_NODE_NOT_WEBHOOK"
	CodeMissingConnections    = "MISSING_CONNECTIONS_MAP"
	CodeInvalidTypePrefix     = "INVALID_TYPE_PREFIX"
	CodeNoTypePrefix          = "NO_TYPE_PREFIX"
	CodeUnknownNodeType       = "UNKNOWN_NODE_TYPE"

	CodeRequiredPropertyMissing = "REQUIRED_PROPERTY_MISSING"
	CodeInvalidOptionValue      = "INVALID_OPTION_VALUE"
	CodeOutOfRange              = "OUT_OF_RANGE"
	CodeTypeMismatch            = "TYPE_MISMATCH"
	CodeInvalidResourceLocator  = "INVALID_RESOURCE_LOCATOR"
	CodeHiddenPropertySet       = "HIDDEN_PROPERTY_SET"
	CodeCommonPropertyAbsent    = "COMMON_PROPERTY_ABSENT"

	CodeUnknownEndpointName    = "UNKNOWN_ENDPOINT_NAME"
	CodeEndpointIsID           = "ENDPOINT_IS_ID"
	CodeInvalidConnectionKind  = "INVALID_CONNECTION_KIND"
	CodeEmptyConnections       = "EMPTY_CONNECTIONS"

	CodeExpressionFormat = "EXPRESSION_FORMAT"

	CodeMissingLanguageModel     = "MISSING_LANGUAGE_MODEL"
	CodeTooManyLanguageModels    = "TOO_MANY_LANGUAGE_MODELS"
	CodeTooManyMemories          = "TOO_MANY_MEMORIES"
	CodeStreamingWithMainOutput  = "STREAMING_WITH_MAIN_OUTPUT"
	CodeStreamingWrongTarget     = "STREAMING_WRONG_TARGET"
	CodeChainRequiresOneLLM      = "CHAIN_REQUIRES_ONE_LLM"
	CodeChainNoTools             = "CHAIN_NO_TOOLS"
	CodeToolMissingParameter     = "TOOL_MISSING_PARAMETER"
	CodeUnknownToolType          = "UNKNOWN_TOOL_TYPE"
)
