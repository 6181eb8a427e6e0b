package datasource

import "fmt"

// On-disk key layout. The layout is part of the interoperability contract
// and must not change between releases.
const (
	recordKeyPrefix = "datasource/uuid"
	dataKeyPrefix   = "data/uuid"
)

// RecordKey returns the object store key of a Datasource's JSON record.
func RecordKey(uuid string) string {
	return fmt.Sprintf("%s/%s", recordKeyPrefix, uuid)
}

// DataKey returns the object store key of one stored array block: the
// segment identified by a daterange string within one version.
func DataKey(uuid, version, daterangeStr string) string {
	return fmt.Sprintf("%s/%s/%s/%s", dataKeyPrefix, uuid, version, daterangeStr)
}
