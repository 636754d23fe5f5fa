// Package metastore persists binary type metadata in an embedded Badger
// database.
//
// Each registered type is one key under the "meta/type/" prefix holding a
// CBOR-encoded TypeMeta. The store is node-local; cluster-wide removal is
// coordinated by the discovery metadata protocol.
package metastore
