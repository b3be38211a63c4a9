package main

import (
	"net/http"
	"time"
)

// outboundClient is shared by the LLM providers and webhook delivery so every
// outbound call carries the same timeout. LLM completions dominate the budget;
// webhook posts return in well under it.
const outboundTimeout = 60 * time.Second

var outboundClient = &http.Client{
	Timeout: outboundTimeout,
}
