// Package anilist fetches the seasonal catalog from the AniList GraphQL
// API. Pages are pulled until the API reports no further pages or the
// configured page cap is reached, and rate limits are honored through the
// Retry-After header.
package anilist
