package couchkit

import "context"

// ReplicationRequest describes a replication between two databases, each
// given as a database name local to the server or as a full URL.
type ReplicationRequest struct {
	Source       string   `json:"source"`
	Target       string   `json:"target"`
	CreateTarget bool     `json:"create_target,omitempty"`
	Continuous   bool     `json:"continuous,omitempty"`
	Cancel       bool     `json:"cancel,omitempty"`
	Filter       string   `json:"filter,omitempty"`
	DocIDs       []string `json:"doc_ids,omitempty"`
}

// ReplicationResult reports the outcome of a replication request. For a
// continuous replication the server answers as soon as it is started.
type ReplicationResult struct {
	OK        bool   `json:"ok"`
	SessionID string `json:"session_id,omitempty"`
	LocalID   string `json:"_local_id,omitempty"`
}

// Replicate triggers a replication on the server.
func (c *Client) Replicate(ctx context.Context, req ReplicationRequest) (*ReplicationResult, error) {
	if req.Source == "" || req.Target == "" {
		return nil, preconditionErr("replication source and target must not be empty")
	}
	payload, err := c.marshal(req)
	if err != nil {
		return nil, err
	}
	var result ReplicationResult
	if err := c.postJSON(ctx, c.baseURI().path("_replicate").build(), payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
