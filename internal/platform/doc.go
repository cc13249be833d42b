// Package platform abstracts the chat platform the bridge serves.
//
// The bridge core consumes the Chat interface and receives Inbound
// events through a Handler; it never touches the concrete client.
// Matrix is the shipped implementation: threads map to thread-scoped
// conversation ids (room id + "/" + thread root event id), flat rooms
// map to the room id itself.
package platform
