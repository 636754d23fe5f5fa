// Package metric builds the node's Prometheus registry and the admin API
// request metrics.
//
// Component metrics (wire, discovery, metastore) are defined next to the
// code they count and registered here through their Register methods.
package metric
