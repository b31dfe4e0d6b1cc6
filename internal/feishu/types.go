package feishu

import "github.com/goliatone/go-feishu2md/docx"

// WikiNode is the document a wiki token points at.
type WikiNode struct {
	SpaceID  string `json:"space_id"`
	NodeType string `json:"node_type"`
	ObjType  string `json:"obj_type"`
	ObjToken string `json:"obj_token"`
	Title    string `json:"title"`
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type tenantTokenResponse struct {
	envelope
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

type documentResponse struct {
	envelope
	Data struct {
		Document *docx.Document `json:"document"`
	} `json:"data"`
}

type blocksResponse struct {
	envelope
	Data struct {
		Items     []docx.Block `json:"items"`
		HasMore   bool         `json:"has_more"`
		PageToken string       `json:"page_token"`
	} `json:"data"`
}

type wikiNodeResponse struct {
	envelope
	Data struct {
		Node *WikiNode `json:"node"`
	} `json:"data"`
}
