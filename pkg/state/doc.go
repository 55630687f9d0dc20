/*
Package state implements the per-session key/value store that task bodies read and write.

Values are addressed with dotted paths ("cart.items", "user.payment_method"). Writing a path
creates the intermediate maps; reading a missing segment reports absence. Exists applies the
presence rule shared by stage prerequisites: a path passes only when it holds a non-nil value
that is not an empty string or an empty collection.
*/
package state
