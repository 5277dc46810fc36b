package render

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// configToProto maps human-readable config strings to Rod protocol resource types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
}

// blockedSet resolves config names to resource types, dropping unknown names.
func blockedSet(names []string) map[proto.NetworkResourceType]struct{} {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(names))
	for _, name := range names {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}
	return blocked
}

// setupHijack installs a request interceptor on the page that fails requests
// for the blocked resource types. Image URLs are read from markup, so images
// never need to be downloaded.
//
// Returns the running HijackRouter so the caller can Stop it, or nil if there
// is nothing to block.
func setupHijack(page *rod.Page, blockedTypes []string) *rod.HijackRouter {
	blocked := blockedSet(blockedTypes)
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, shouldBlock := blocked[ctx.Request.Type()]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until Stop.
	go router.Run()

	return router
}
