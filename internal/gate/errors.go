// Package gate implements the entry validation chain that decides whether a
// form or instance locator may be opened, and in which mode.
package gate

// Kind identifies one of the terminal validation failures. The set is
// closed: every failure aborts the flow with exactly one of these.
type Kind string

const (
	KindAppNotConfigured       Kind = "app_not_configured"
	KindWrongProject           Kind = "wrong_project"
	KindUnrecognizedLocator    Kind = "unrecognized_locator"
	KindBadLocator             Kind = "bad_locator"
	KindMultipleCandidateForms Kind = "multiple_candidate_forms"
	KindParentFormMissing      Kind = "parent_form_missing"
	KindInstanceDeleted        Kind = "instance_deleted"
	KindEncryptedForm          Kind = "encrypted_form"
)

// GateError is a terminal, user-visible validation failure.
type GateError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *GateError) Error() string { return e.Message }

// messages holds the per-locale message tables. English is the fallback.
var messages = map[string]map[Kind]string{
	"en": {
		KindAppNotConfigured:       "The app is not configured: add a project before opening forms.",
		KindWrongProject:           "This form belongs to a different project. Switch projects and try again.",
		KindUnrecognizedLocator:    "This link is not something formgate can open.",
		KindBadLocator:             "The form or instance this link points to does not exist.",
		KindMultipleCandidateForms: "More than one form matches this instance, so it cannot be opened.",
		KindParentFormMissing:      "The blank form this instance was filled from is no longer available.",
		KindInstanceDeleted:        "This instance's data was missing and the instance has been deleted.",
		KindEncryptedForm:          "This instance is encrypted and can no longer be edited.",
	},
	"es": {
		KindAppNotConfigured:       "La aplicación no está configurada: añada un proyecto antes de abrir formularios.",
		KindWrongProject:           "Este formulario pertenece a otro proyecto. Cambie de proyecto e inténtelo de nuevo.",
		KindUnrecognizedLocator:    "Este enlace no es algo que formgate pueda abrir.",
		KindBadLocator:             "El formulario o la instancia de este enlace no existe.",
		KindMultipleCandidateForms: "Más de un formulario coincide con esta instancia, por lo que no se puede abrir.",
		KindParentFormMissing:      "El formulario en blanco del que se rellenó esta instancia ya no está disponible.",
		KindInstanceDeleted:        "Faltaban los datos de esta instancia y la instancia ha sido eliminada.",
		KindEncryptedForm:          "Esta instancia está cifrada y ya no se puede editar.",
	},
}

// Message returns the localized message for a kind. Unknown locales fall
// back to English.
func Message(locale string, k Kind) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[k]; ok {
			return msg
		}
	}
	return messages["en"][k]
}

func (v *Validator) fail(k Kind) *GateError {
	return &GateError{Kind: k, Message: Message(v.locale, k)}
}
