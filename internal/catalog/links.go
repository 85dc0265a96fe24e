package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/MorseWayne/shoe_catalog/internal/domain"
)

const (
	// DefaultContactPhone 接收咨询的 WhatsApp 号码
	DefaultContactPhone = "51997276313"

	whatsappSendURL = "https://api.whatsapp.com/send"
	greetingFormat  = "¡Hola! Estoy interesado en el producto %s. ¿Podrías proporcionarme más información?"
	imageSuffix     = "_img_principal.JPEG"
)

// LinkBuilder 生成商品的联系链接和图片地址
type LinkBuilder struct {
	phone        string
	imageBaseURL string
}

// NewLinkBuilder 创建链接生成器
func NewLinkBuilder(phone, imageBaseURL string) *LinkBuilder {
	if phone == "" {
		phone = DefaultContactPhone
	}
	return &LinkBuilder{
		phone:        phone,
		imageBaseURL: strings.TrimRight(imageBaseURL, "/"),
	}
}

// ContactLink 生成带问候语的 WhatsApp 深链接
func (b *LinkBuilder) ContactLink(productName string) string {
	message := fmt.Sprintf(greetingFormat, productName)
	return fmt.Sprintf("%s?phone=%s&text=%s", whatsappSendURL, b.phone, encodeURIComponent(message))
}

// ImageURL 生成商品主图地址，编码中的空格替换为 %20
func (b *LinkBuilder) ImageURL(code string) string {
	return b.imageBaseURL + "/" + strings.ReplaceAll(code, " ", "%20") + imageSuffix
}

// View 为商品附加图片地址与联系链接
func (b *LinkBuilder) View(p *domain.Product) *domain.ProductView {
	return &domain.ProductView{
		Product:    p,
		ImageURL:   b.ImageURL(p.Code),
		ContactURL: b.ContactLink(p.Name),
	}
}

// Views 批量转换
func (b *LinkBuilder) Views(products []*domain.Product) []*domain.ProductView {
	views := make([]*domain.ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, b.View(p))
	}
	return views
}

// componentUnescaper 还原 encodeURIComponent 不转义的字符
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent 与浏览器 encodeURIComponent 的编码结果一致
func encodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
