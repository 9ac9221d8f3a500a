package redis

import "fmt"

// Key construction helpers for the day/night agent

// StateKey returns the key for the current frame state (hash)
// Pattern: dns:state:{instance}
func StateKey(instance string) string {
	return fmt.Sprintf("dns:state:%s", instance)
}

// StagingKey returns the key for the hex-encoded staging buffer (string)
// Pattern: dns:staging:{instance}
func StagingKey(instance string) string {
	return fmt.Sprintf("dns:staging:%s", instance)
}

// TransitionsKey returns the key for recent phase transitions (list, newest first)
// Pattern: dns:transitions:{instance}
func TransitionsKey(instance string) string {
	return fmt.Sprintf("dns:transitions:%s", instance)
}
