package builders

// Platform limits, in characters unless noted.
const (
	MaxCommandNameLength        = 32
	MaxCommandDescriptionLength = 100
	MaxOptions                  = 25
	MaxChoices                  = 25
	MaxChoiceNameLength         = 100
	MaxChoiceValueLength        = 100
	MaxOptionStringLength       = 6000

	MaxCustomIDLength = 100
	MaxButtonLabel    = 80
	MaxRowComponents  = 5

	MaxSelectPlaceholder = 150
	MaxSelectOptions     = 25
	MaxSelectOptionText  = 100

	MaxModalTitle      = 45
	MaxModalRows       = 5
	MaxTextInputLabel  = 45
	MaxTextInputValue  = 4000
	MaxTextPlaceholder = 100

	MaxEmbedTitle       = 256
	MaxEmbedDescription = 4096
	MaxEmbedFields      = 25
	MaxEmbedFieldName   = 256
	MaxEmbedFieldValue  = 1024
	MaxEmbedFooter      = 2048
	MaxEmbedAuthor      = 256
	MaxEmbedTotal       = 6000
)
