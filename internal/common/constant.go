package common

import "time"

// SessionCookieName is the cookie carrying the session token that the route
// guard inspects on every navigation.
const SessionCookieName = "auth-token"

// SessionValidity is the lifetime of a session token and its cookie.
const SessionValidity = time.Hour

// MaxAttachmentSize is the largest attachment accepted by the vault.
const MaxAttachmentSize = 5 * 1024 * 1024
