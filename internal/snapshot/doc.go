// Package snapshot persists the task list as a single JSON value in a kv.Store.
//
// The snapshot is the bare task array, stored under one fixed key:
//
//	[
//	  {"id": 1718000000000, "text": "Buy milk", "completed": false},
//	  {"id": 1718000000001, "text": "Walk dog", "completed": true}
//	]
//
// There is no version field and no migration. On load the raw value must
// parse as JSON, pass the JSON Schema in schema.json (or a schema file given
// with WithSchemaFile), and satisfy the list invariants the schema cannot
// express: unique IDs and trimmed text. Anything else is a *CorruptError.
//
// Saves always replace the whole value. Encoding is compact json.Marshal
// output, so saving an unchanged list writes identical bytes.
package snapshot
