// Package match finds the closest known identifier to a misspelled one. It
// backs the "did you mean" hint of property lookup errors.
package match
