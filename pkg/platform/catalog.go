package platform

import "feedengage/pkg/models"

var linkedIn = Platform{
	Name:        "linkedin",
	DisplayName: "LinkedIn",
	LoginURL:    "https://www.linkedin.com/login",
	FeedURL:     "https://www.linkedin.com/feed/",
	Enabled:     true,
	Categories: []models.Category{
		"LIKE", "CELEBRATE", "SUPPORT", "LOVE", "INSIGHTFUL", "FUNNY",
	},
	DefaultCategory: "LIKE",
	Selectors: Selectors{
		LoginUsername: "#username",
		LoginPassword: "#password",
		LoginSubmit:   `[type="submit"]`,
		LoginError:    "#error-for-password, #error-for-username, div.alert-content",
		RateLimit:     "#captcha-internal, form#captcha-challenge, div.challenge-dialog",
		FeedReady:     "div.scaffold-finite-scroll, main.scaffold-layout__main",

		PostContainer: "div.feed-shared-update-v2:not([data-promoted=true])," +
			"div.relative.feed-shared-update-v2:not(.feed-shared-update-v2--sponsored)",
		Sponsored: `span.update-components-actor__sub-description:contains("Promoted"),` +
			`.feed-shared-update-v2--sponsored, [data-promoted="true"]`,
		Content: "div.feed-shared-update-v2__description-wrapper," +
			"div.feed-shared-text-view," +
			"div.feed-shared-update-v2__commentary," +
			"div.update-components-text," +
			"span.break-words," +
			"div.feed-shared-inline-show-more-text",
		Author: "span.feed-shared-actor__name," +
			"span.update-components-actor__name," +
			"a.feed-shared-actor__container",
		AuthorLink: "a.feed-shared-actor__container," +
			"a.update-components-actor__container," +
			"a.app-aware-link.update-components-actor__meta-link",
		Timestamp:     "span.update-components-actor__sub-description, span.feed-shared-actor__sub-description",
		IdentityAttrs: []string{"data-id", "data-urn"},
		PermalinkAttr: "data-permalink",

		ReactionButton:      "button.artdeco-button.react-button__trigger, button.reactions-react-button",
		ReactionMenuTrigger: "button.reactions-menu__trigger, button.artdeco-button.reactions-menu__trigger",
		Reactions: map[models.Category]string{
			"LIKE":       `button[aria-label="React Like"]`,
			"CELEBRATE":  `button[aria-label="React Celebrate"]`,
			"SUPPORT":    `button[aria-label="React Support"]`,
			"LOVE":       `button[aria-label="React Love"]`,
			"INSIGHTFUL": `button[aria-label="React Insightful"]`,
			"FUNNY":      `button[aria-label="React Funny"]`,
		},

		CommentButton: `button[aria-label*="comment" i],` +
			"button.comments-comment-box__submit-button," +
			`button[data-control-name="comment"]`,
		CommentField: `div.ql-editor[contenteditable="true"],` +
			`div[role="textbox"],` +
			"div.comments-comment-box__content-editor",
		CommentSubmit: `button[type="submit"], button.comments-comment-box__submit-button`,
	},
}

var facebook = Platform{
	Name:        "facebook",
	DisplayName: "Facebook",
	LoginURL:    "https://www.facebook.com/login",
	FeedURL:     "https://www.facebook.com/",
	Categories: []models.Category{
		"LIKE", "LOVE", "CARE", "HAHA", "WOW", "SAD", "ANGRY",
	},
	DefaultCategory: "LIKE",
	Selectors: Selectors{
		LoginUsername: "#email",
		LoginPassword: "#pass",
		LoginSubmit:   `button[name="login"]`,
		LoginError:    "div._9ay7",
		RateLimit:     `form[action*="checkpoint"]`,
		FeedReady:     `div[role="feed"]`,
		PostContainer: `div[role="feed"] > div`,
		Content:       `div[data-ad-preview="message"], div[data-ad-comet-preview="message"]`,
		Author:        "h2 strong, h3 strong",
		AuthorLink:    "h2 a, h3 a",
		IdentityAttrs: []string{"aria-posinset", "data-pagelet"},
		Reactions: map[models.Category]string{
			"LIKE":  `div[aria-label="Like"]`,
			"LOVE":  `div[aria-label="Love"]`,
			"CARE":  `div[aria-label="Care"]`,
			"HAHA":  `div[aria-label="Haha"]`,
			"WOW":   `div[aria-label="Wow"]`,
			"SAD":   `div[aria-label="Sad"]`,
			"ANGRY": `div[aria-label="Angry"]`,
		},
		ReactionButton: `div[aria-label="Like"][role="button"]`,
		CommentButton:  `div[aria-label="Leave a comment"]`,
		CommentField:   `div[contenteditable="true"][role="textbox"]`,
	},
}

var instagram = Platform{
	Name:            "instagram",
	DisplayName:     "Instagram",
	LoginURL:        "https://www.instagram.com/accounts/login/",
	FeedURL:         "https://www.instagram.com/",
	Categories:      []models.Category{"LIKE", "LOVE"},
	DefaultCategory: "LIKE",
	Selectors: Selectors{
		LoginUsername: `input[name="username"]`,
		LoginPassword: `input[name="password"]`,
		LoginSubmit:   `button[type="submit"]`,
		LoginError:    "#slfErrorAlert",
		RateLimit:     `div[role="dialog"] h3`,
		FeedReady:     "main article",
		PostContainer: "main article",
		Content:       "h1, span._ap3a",
		Author:        "header a span",
		AuthorLink:    "header a",
		IdentityAttrs: []string{"data-id"},
		Reactions: map[models.Category]string{
			"LIKE": `svg[aria-label="Like"]`,
			"LOVE": `svg[aria-label="Like"]`,
		},
		ReactionButton: `svg[aria-label="Like"]`,
		CommentField:   `textarea[aria-label="Add a comment…"]`,
		CommentSubmit:  `div[role="button"]:not([aria-disabled="true"])`,
	},
}
