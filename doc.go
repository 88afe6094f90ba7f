// Package beanbag provides a fluent client for REST-style HTTP APIs.
//
// Attribute and index navigation on a Resource builds a URL path without
// touching the network. Terminal operations send exactly one request and
// decode the response.
//
// # Quick Start
//
//	gh, err := beanbag.Open("https://api.github.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	repo, err := gh.Attr("repos").Attr("golang").Attr("go").Invoke(ctx)
//
// # Verbs
//
// The operation decides the HTTP verb:
//
//   - Invoke(ctx) sends GET
//   - Invoke(ctx, body) sends POST
//   - Invoke(ctx, "VERB", body) sends any verb
//   - Assign, SetAttr and SetItem send PUT
//   - Remove, DelAttr and DelItem send DELETE
//   - Augment sends PATCH and discards the response
//
// Params arguments to Invoke and With add query parameters; a nil value
// removes one. The free functions Get, Head, Post, Put, Patch, Delete and
// Do work on any Resource and never interpret their arguments.
//
// Attr("_") ends the path with a slash, so api.Attr("users").Attr("_")
// resolves to ".../users/".
//
// # Responses
//
// Status codes outside 200-299 fail with ErrBadStatus. Empty bodies decode
// to nil. A declared Content-Type must match the Format; a missing one is
// accepted. An object of the form {"result": X} is returned as X.
//
// # Configuration
//
// Use functional options to configure the client:
//
//	api, err := beanbag.New("https://example.com/api",
//	    beanbag.WithExtension(".json"),
//	    beanbag.WithFormat(beanbag.YAML),
//	    beanbag.WithSigner(negotiate.New(negotiate.KerberosSource(cl))),
//	)
//
// # Transports
//
// The default transport is resty. Retries, rate limiting, metrics and
// request IDs are available from the transport package:
//
//	t := transport.Chain(
//	    transport.NewRetryable(transport.DefaultRetryConfig()),
//	    transport.RateLimit(transport.RateLimitConfig{RequestsPerSecond: 5, Burst: 1}),
//	    transport.RequestID(),
//	)
//	api, err := beanbag.New(url, beanbag.WithTransport(t))
//
// # Error Handling
//
// Errors are typed and can be checked with errors.Is:
//
//	_, err := api.Attr("missing").Invoke(ctx)
//	if errors.Is(err, beanbag.ErrBadStatus) {
//	    // Inspect err.(*beanbag.Error).StatusCode
//	}
//
// # Extending
//
// Types that embed *BeanBag keep their own methods through navigation:
//
//	type API struct{ *beanbag.BeanBag }
//
//	root := namespace.New[*API, beanbag.Path](&API{b})
//	api, path := root.Attr("users").Invert() // api is *API
//
// # Thread Safety
//
// A BeanBag is safe for concurrent use when its transport is. Resources
// and Paths are immutable values.
package beanbag
