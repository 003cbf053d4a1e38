/*
Package treedb implements an embedded hierarchical document store: a single
JSON-like tree kept in memory and persisted as a whole to one file (or one
value of a Bolt database).

We implement:

1. Documents, ordered string-keyed mappings whose values are scalars (null,
bool, integer, float, string), lists of strings or numbers, or nested
documents.

2. Nodes, cursors on one document of the tree, addressed by slash-separated
paths like "/users/u1". Navigating with Child creates missing documents on
the way; Lookup does not.

3. Queries over the children of a node, matching one field per child, either
directly ("age") or one level down ("profile/age"), plus a tiny textual form:
"FROM users age > 25 LIMIT 10".

4. BigQuery, a flattened view of a whole sub-tree for searches that do not
care about depth, and JSONPath selection via Node.Select.

# Reading and writing

Getters come in two families. GetString, GetNumber, GetBoolean and
GetDecimal never fail: they return the caller's default when the key is
absent or holds something else. TryString, TryInt, TryBool, TryFloat and the
list getters fail with typed errors instead. Note that GetNumber also
returns the default for a stored zero; GetInt does not.

Writes (Put and friends) change the in-memory tree only. Commit serializes
the whole tree and replaces the stored copy. Delete and Remove are the
exception and commit right away.

# Persistence

**Storage.** A Storage loads and stores an opaque byte string. FileStorage
replaces its file atomically (temp file, fdatasync, rename) and reads it
through a memory mapping. BoltStorage keeps many named trees in one Bolt file,
one value per tree in the "trees" bucket.

**Format.** The tree is serialized as JSON (default, indented with three
spaces), MsgPack or YAML. There is no header and no version field: a stored
tree is parsed directly as the configured format, so changing the format
needs a migration.

**Transform.** An optional invertible step runs after serialization and
before parsing: Base64Transform or ZstdTransform.

**Loading.** A missing or unreadable tree loads as an empty document, with
a warning in the log. Only commit-time failures are reported to the caller.

## JSON details

Integers and floats are told apart by their literal: a number with a decimal
point or an exponent is a float, anything else is an integer (or a float, if
it does not fit into int64). Integral floats are written with a trailing
".0" to survive a round trip.

Lists are JSON arrays of only strings or only numbers. Any other array makes
the whole tree unreadable.
*/
package treedb
