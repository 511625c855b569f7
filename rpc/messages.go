package rpc

// PutRequest carries the blob to store.
type PutRequest struct {
	Data []byte `json:"data"`
}

// PutResponse carries the id assigned to the stored blob. EvictionError is
// set when the blob was stored but the eviction pass it triggered failed.
type PutResponse struct {
	ID            int    `json:"id"`
	EvictionError string `json:"eviction_error,omitempty"`
}

// GetRequest names the entry to fetch.
type GetRequest struct {
	ID int `json:"id"`
}

// GetResponse carries the blob. Found is false for an unknown id.
// EvictionError is set when the blob was read but reclaiming memory after
// the reload failed.
type GetResponse struct {
	Data          []byte `json:"data,omitempty"`
	Found         bool   `json:"found"`
	EvictionError string `json:"eviction_error,omitempty"`
}

// StatsRequest is the (empty) input of the Stats method.
type StatsRequest struct{}

// StatsResponse mirrors cache.Stats.
type StatsResponse struct {
	Entries         int   `json:"entries"`
	ResidentEntries int   `json:"resident_entries"`
	ResidentBytes   int64 `json:"resident_bytes"`
	HighWatermark   int64 `json:"high_watermark"`
	LowWatermark    int64 `json:"low_watermark"`
}

// PingRequest is the input for the Ping method.
type PingRequest struct {
	Message string `json:"message"`
}

// PingResponse is the output of the Ping method.
type PingResponse struct {
	Message        string `json:"message"`
	ServerTimeUnix int64  `json:"server_time_unix"`
}

// message is a marker interface satisfied by the types above so the codec
// can tell them apart from protobuf messages.
type message interface {
	isMessage()
}

func (*PutRequest) isMessage()    {}
func (*PutResponse) isMessage()   {}
func (*GetRequest) isMessage()    {}
func (*GetResponse) isMessage()   {}
func (*StatsRequest) isMessage()  {}
func (*StatsResponse) isMessage() {}
func (*PingRequest) isMessage()   {}
func (*PingResponse) isMessage()  {}
