package browser

import (
	"encoding/json"
	"fmt"
)

// scrollScript scrolls one step in small increments and returns the page
// height before the step and whether the bottom was reached
const scrollScript = `(() => {
	const step = %d;
	const before = document.body.scrollHeight;
	const startY = window.pageYOffset;
	const stopY = Math.min(startY + step, before);
	const stepSize = (stopY - startY) / 10;
	for (let i = 0; i <= 10; i++) {
		window.scrollTo({top: startY + stepSize * i, behavior: 'auto'});
	}
	return {before: before, bottom: stopY >= document.body.scrollHeight - window.innerHeight};
})()`

const heightScript = `document.body.scrollHeight`

// pageStateScript classifies the current page. The result is one of
// "rate_limited", "login_error", "feed", "login" or "unknown".
const pageStateScript = `(() => {
	const has = (sel) => sel !== "" && document.querySelector(sel) !== null;
	if (has(%s)) return "rate_limited";
	if (has(%s)) return "login_error";
	if (has(%s)) return "feed";
	if (location.href.includes("/login") || location.href.includes("/checkpoint")) return "login";
	return "unknown";
})()`

const existsScript = `document.querySelector(%s) !== null`

type scrollState struct {
	Before int64 `json:"before"`
	Bottom bool  `json:"bottom"`
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func pageState(rateLimit, loginError, feedReady string) string {
	return fmt.Sprintf(pageStateScript, quote(rateLimit), quote(loginError), quote(feedReady))
}

func exists(selector string) string {
	return fmt.Sprintf(existsScript, quote(selector))
}
