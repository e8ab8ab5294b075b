// Package primitive classifies primitive Go types into kinds and performs the
// default value coercion applied by bindings when a converted value does not
// fit the destination property type.
//
// Conversions are grouped into categories (safe numeric widening, text to
// number, textual booleans, durations and so on). A binding only coerces
// along the categories it was configured with; anything else is reported as
// a *CoerceError.
package primitive
