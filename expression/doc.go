// Package expression reads the inputs of the patient classifier: a genes ×
// patients expression table, a patient metadata file mapping ids to groups,
// and optional marker gene lists.
package expression
