// Package value holds the wire forms of SQL values exchanged between query
// nodes, the index range messages that carry rows of them, and the query
// and DML requests whose parameters are values.
//
// All codes in this family are negative. A Value is written as a
// polymorphic nested message, so an Array or Row may mix value kinds and
// a nil element costs only the nil type code.
package value
