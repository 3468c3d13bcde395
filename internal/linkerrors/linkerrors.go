// Package linkerrors provides a standardized, categorized error type for
// every fatal or diagnostic condition the placement engine can raise.
package linkerrors

import (
	"fmt"
	"runtime"
)

// Category groups errors by the stage of linking that raised them.
type Category string

const (
	CategoryScript      Category = "SCRIPT"
	CategoryPlacement   Category = "PLACEMENT"
	CategoryOverlay     Category = "OVERLAY"
	CategoryCharmap     Category = "CHARMAP"
	CategoryMemoryModel Category = "MEMORY_MODEL"
)

// LinkError is a consistent, context-carrying error shape used across the
// module instead of bare fmt.Errorf, so callers can branch on Category.
type LinkError struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// New creates a LinkError, capturing the immediate caller for diagnostics.
func New(category Category, code, message string, context map[string]interface{}) *LinkError {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &LinkError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// ScriptContradiction reports a linker-script record that disagrees with a
// section's own constraints. Non-fatal; callers keep going after reporting it.
func ScriptContradiction(section, reason string) *LinkError {
	return New(CategoryScript, "SCRIPT_CONTRADICTION",
		fmt.Sprintf("Linker script contradicts %q's %s", section, reason),
		map[string]interface{}{"section": section, "reason": reason})
}

// ScriptVersionTooOld reports a script MINVERSION directive the running
// engine does not satisfy.
func ScriptVersionTooOld(constraint, engineVersion string) *LinkError {
	return New(CategoryScript, "SCRIPT_VERSION",
		fmt.Sprintf("Linker script requires version %s, engine is %s", constraint, engineVersion),
		map[string]interface{}{"constraint": constraint, "engineVersion": engineVersion})
}

// Unplaceable reports a section the placer could not find room for.
func Unplaceable(name, sectionType, where, detail string) *LinkError {
	msg := fmt.Sprintf("Unable to place %q (%s section) %s", name, sectionType, where)
	if detail != "" {
		msg += ": " + detail
	}

	return New(CategoryPlacement, "UNPLACEABLE", msg,
		map[string]interface{}{"section": name, "type": sectionType, "where": where})
}

// OverlayContradiction reports that an overlay output was requested while
// one or more sections remain unfixed.
func OverlayContradiction(count int) *LinkError {
	verb := "are"
	if count == 1 {
		verb = "is"
	}

	return New(CategoryOverlay, "OVERLAY_UNFIXED",
		fmt.Sprintf("All sections must be fixed when using an overlay file; %d %sn't", count, verb),
		map[string]interface{}{"count": count})
}

// CharmapTableFull reports that an Add exceeded MaxCharmaps or
// CharmapLength; non-fatal, a sentinel return to the caller.
func CharmapTableFull(input string) *LinkError {
	return New(CategoryCharmap, "CHARMAP_FULL",
		fmt.Sprintf("Charmap table full or entry %q too long", input),
		map[string]interface{}{"input": input})
}
