// Package key provides the five-part product identity key used as the join
// and grouping key across all voucher and snapshot data.
//
// Normalization happens on construction and is never deferred: no raw,
// unpadded key can exist in the data model. Every component that builds a key
// must go through New, otherwise joins silently miss rows.
package key

import (
	"fmt"
	"strings"
)

// Segment widths of the fixed-layout extracts.
const (
	productCodeWidth      = 5
	gradeCodeWidth        = 3
	classCodeWidth        = 3
	shippingMarkCodeWidth = 4
	shippingMarkNameWidth = 8
)

// Key is the normalized five-part product identity. It is a comparable value
// type: two keys are equal iff all five normalized segments match, so Key can
// be used directly as a map key.
type Key struct {
	productCode      string
	gradeCode        string
	classCode        string
	shippingMarkCode string
	shippingMarkName string
}

// New builds a normalized Key from raw extract strings.
// Code segments keep digits only and are left-zero-padded to their fixed
// width; the shipping mark name is trimmed of trailing whitespace, then
// right-space-padded or truncated to exactly 8 characters.
func New(productCode, gradeCode, classCode, shippingMarkCode, shippingMarkName string) Key {
	return Key{
		productCode:      normalizeCode(productCode, productCodeWidth),
		gradeCode:        normalizeCode(gradeCode, gradeCodeWidth),
		classCode:        normalizeCode(classCode, classCodeWidth),
		shippingMarkCode: normalizeCode(shippingMarkCode, shippingMarkCodeWidth),
		shippingMarkName: normalizeMarkName(shippingMarkName),
	}
}

func (k Key) ProductCode() string      { return k.productCode }
func (k Key) GradeCode() string        { return k.gradeCode }
func (k Key) ClassCode() string        { return k.classCode }
func (k Key) ShippingMarkCode() string { return k.shippingMarkCode }
func (k Key) ShippingMarkName() string { return k.shippingMarkName }

// IsZero reports whether the key was built from all-empty segments.
func (k Key) IsZero() bool {
	return k == New("", "", "", "", "")
}

// String renders the key for logs and error details.
func (k Key) String() string {
	return fmt.Sprintf("%s-%s-%s-%s-%q",
		k.productCode, k.gradeCode, k.classCode, k.shippingMarkCode, k.shippingMarkName)
}

// normalizeCode strips all non-digit characters and left-zero-pads to width.
// An alphanumeric artifact like "AB123" normalizes by digits only to "00123".
// A digit run longer than the width is kept as-is.
func normalizeCode(raw string, width int) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= width {
		return digits
	}
	return strings.Repeat("0", width-len(digits)) + digits
}

// normalizeMarkName trims trailing whitespace, then pads or truncates to
// exactly 8 characters.
func normalizeMarkName(raw string) string {
	trimmed := strings.TrimRight(raw, " \t")
	runes := []rune(trimmed)
	if len(runes) >= shippingMarkNameWidth {
		return string(runes[:shippingMarkNameWidth])
	}
	return trimmed + strings.Repeat(" ", shippingMarkNameWidth-len(runes))
}
