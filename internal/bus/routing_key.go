package bus

import "strings"

// RoutingKey joins a channel and chat ID into a session key.
func RoutingKey(channel Channel, chatID string) string {
	if chatID == "" {
		return string(channel)
	}
	return string(channel) + ":" + chatID
}

// ParseRoutingKey splits a routing key into channel and chat ID.
func ParseRoutingKey(key string) (channel Channel, chatID string) {
	if c, id, ok := strings.Cut(key, ":"); ok {
		return Channel(c), id
	}
	return Channel(key), ""
}
