/*
Package origin fetches original images from the remote object store.

Fetchers hold no cache state. Every failure is reported as either
types.NotFound (the store confirmed the key does not exist) or
types.Unavailable (anything else); retries are left to the caller.
*/
package origin
