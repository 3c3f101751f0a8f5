package couchkit

// Document carries the identity fields every stored document has: the
// document id and the opaque revision token the server assigns on each
// successful write. Embed it as an anonymous field in your own structs:
//
//	type Person struct {
//	    couchkit.Document
//	    Name string `json:"name"`
//	}
type Document struct {
	ID  string `json:"_id,omitempty"`
	Rev string `json:"_rev,omitempty"`
}

// SetIDRev sets the document id and revision.
func (d *Document) SetIDRev(id, rev string) {
	d.ID, d.Rev = id, rev
}

// IDRev returns the document id and revision.
func (d *Document) IDRev() (id, rev string) {
	return d.ID, d.Rev
}

// DynamicDocument is a schema-free document backed by a plain map.
type DynamicDocument map[string]any

// SetIDRev sets the document id and revision.
func (m DynamicDocument) SetIDRev(id, rev string) {
	m["_id"] = id
	m["_rev"] = rev
}

// IDRev returns the document id and revision.
func (m DynamicDocument) IDRev() (id, rev string) {
	id, _ = m["_id"].(string)
	rev, _ = m["_rev"].(string)
	return id, rev
}

// identity is the probe shape used to extract id and revision from an
// arbitrary document value.
type identity struct {
	ID  string `json:"_id"`
	Rev string `json:"_rev"`
}

// docIdentity extracts the _id and _rev fields of doc through the codec,
// so custom serialization rules are honored.
func docIdentity(codec Codec, doc any) (id, rev string, err error) {
	data, err := codec.Marshal(doc)
	if err != nil {
		return "", "", decodeErr(err)
	}
	var probe identity
	if err := codec.Unmarshal(data, &probe); err != nil {
		return "", "", decodeErr(err)
	}
	return probe.ID, probe.Rev, nil
}

// encodeWithID returns the JSON encoding of doc with _id set to id. Used
// when the client synthesizes an id for a document that carries none.
func encodeWithID(codec Codec, doc any, id string) ([]byte, error) {
	data, err := codec.Marshal(doc)
	if err != nil {
		return nil, decodeErr(err)
	}
	fields := make(map[string]any)
	if err := codec.Unmarshal(data, &fields); err != nil {
		return nil, decodeErr(err)
	}
	fields["_id"] = id
	data, err = codec.Marshal(fields)
	if err != nil {
		return nil, decodeErr(err)
	}
	return data, nil
}
