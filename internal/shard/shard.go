// Package shard provides shard key generation for distributed DynamoDB index partitions.
package shard

import (
	"fmt"
	"hash/fnv"
)

// NullValue is the partition value stored for a null index field.
// DynamoDB cannot index a missing or NULL key attribute.
const NullValue = "#null"

// IndexPK computes the sharded partition key for an index entry.
// With numShards=1, all records go to shard "00".
// With numShards>1, records are distributed across shards based on recordID hash.
func IndexPK(value, recordID string, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("%s#00", value)
	}
	h := fnv.New32a()
	h.Write([]byte(recordID))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", value, shard)
}

// PartitionKeys returns every partition key a lookup for value must query.
func PartitionKeys(value string, numShards int) []string {
	if numShards <= 1 {
		return []string{fmt.Sprintf("%s#00", value)}
	}
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s#%02x", value, i)
	}
	return keys
}
