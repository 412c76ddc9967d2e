package service

import (
	"errors"
	"strings"
	"time"

	"github.com/catalog-next/internal/config"
	"github.com/catalog-next/internal/constants"

	"github.com/mojocn/base64Captcha"
)

// ErrCaptchaRequired 需要验证码但载荷为空
var ErrCaptchaRequired = errors.New("captcha required")

// ErrCaptchaInvalid 验证码不正确或已过期
var ErrCaptchaInvalid = errors.New("captcha invalid")

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaService 登录验证码服务
// 按配置决定是否启用，当前仅支持图片验证码
type CaptchaService struct {
	cfg        config.CaptchaConfig
	imageStore base64Captcha.Store
	driver     base64Captcha.Driver
}

// NewCaptchaService 创建验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = constants.CaptchaProviderNone
	}
	cfg.Provider = provider

	s := &CaptchaService{cfg: cfg}
	if provider == constants.CaptchaProviderImage {
		image := cfg.Image
		if image.Length <= 0 {
			image.Length = 4
		}
		if image.Width <= 0 {
			image.Width = 240
		}
		if image.Height <= 0 {
			image.Height = 80
		}
		if image.MaxStore <= 0 {
			image.MaxStore = base64Captcha.GCLimitNumber
		}
		if image.ExpireSeconds <= 0 {
			image.ExpireSeconds = 300
		}
		s.imageStore = base64Captcha.NewMemoryStore(image.MaxStore, time.Duration(image.ExpireSeconds)*time.Second)
		s.driver = base64Captcha.NewDriverDigit(image.Height, image.Width, image.Length, 0.7, image.NoiseCount)
	}
	return s
}

// Enabled 是否要求登录携带验证码
func (s *CaptchaService) Enabled() bool {
	return s.cfg.Provider != constants.CaptchaProviderNone
}

// Provider 当前启用的验证码类型
func (s *CaptchaService) Provider() string {
	return s.cfg.Provider
}

// GenerateImageChallenge 生成一张图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	if s.cfg.Provider != constants.CaptchaProviderImage {
		return nil, ErrCaptchaInvalid
	}
	captcha := base64Captcha.NewCaptcha(s.driver, s.imageStore)
	id, b64, _, err := captcha.Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaImageChallenge{CaptchaID: id, ImageBase64: b64}, nil
}

// Verify 校验登录验证码，未启用时直接放行
func (s *CaptchaService) Verify(payload CaptchaVerifyPayload) error {
	if !s.Enabled() {
		return nil
	}
	if payload.CaptchaID == "" || payload.CaptchaCode == "" {
		return ErrCaptchaRequired
	}
	if !s.imageStore.Verify(payload.CaptchaID, payload.CaptchaCode, true) {
		return ErrCaptchaInvalid
	}
	return nil
}
