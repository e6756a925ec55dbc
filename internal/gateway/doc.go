// Package gateway is the HTTP face of the console. It owns the authToken
// session cookie and the route guard, and exposes the inbox, news and chat
// roster as JSON for a browser front end. All data comes from the police
// backend through the client services.
package gateway
