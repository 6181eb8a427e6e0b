package serializer

import "github.com/emberlab/gasvault/lib/dataset"

// IDatasetSerializer is the interface for all dataset block serializers.
// A serializer turns one time-indexed dataset chunk into the byte blob
// stored under a data key, and back.
type IDatasetSerializer interface {
	// Serialize serializes a Dataset into a byte array.
	// It returns the serialized byte array and an error if any.
	Serialize(ds *dataset.Dataset) ([]byte, error)
	// Deserialize deserializes a byte array into a Dataset.
	// It takes a byte array and a pointer to a Dataset as parameters.
	// It returns an error if any.
	Deserialize(b []byte, ds *dataset.Dataset) error
}
