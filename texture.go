package vkstep

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	vk "github.com/vulkan-go/vulkan"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes a png, jpeg, bmp or webp file into tightly packed RGBA.
// With flipY the rows are reversed so the first row is the bottom of the
// picture.
func LoadImage(path string, flipY bool) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if flipY {
		src = imaging.FlipV(src)
	}
	return toRGBA(src), nil
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Texture is a sampled image with its view and sampler.
type Texture struct {
	*ImageResource
	View    *ImageView
	Sampler *Sampler
}

func (t *Texture) Destroy() {
	if t.Sampler != nil {
		t.Sampler.Destroy()
	}
	if t.View != nil {
		t.View.Destroy()
	}
	t.ImageResource.Free()
}

// StageTexture copies img into a new image in the pool and creates a view
// and a linear sampler for it.
func (p *ImageResourcePool) StageTexture(img *image.RGBA, cmdPool *CommandPool, queue *Queue) (*Texture, error) {
	b := img.Bounds()
	extent := vk.Extent2D{Width: uint32(b.Dx()), Height: uint32(b.Dy())}
	res, err := p.AllocateImage(extent, vk.FormatR8g8b8a8Unorm, vk.ImageTilingOptimal,
		vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit)
	if err != nil {
		return nil, err
	}
	if err := res.Upload(img.Pix, cmdPool, queue); err != nil {
		res.Free()
		return nil, fmt.Errorf("upload %dx%d texture: %w", extent.Width, extent.Height, err)
	}

	t := &Texture{ImageResource: res}
	if t.View, err = res.CreateImageView(); err != nil {
		t.Destroy()
		return nil, err
	}
	if t.Sampler, err = p.Device.CreateSampler(vk.FilterLinear, vk.SamplerAddressModeRepeat); err != nil {
		t.Destroy()
		return nil, err
	}
	return t, nil
}

// StageTextureFromDisk loads path and stages it as a texture.
func (p *ImageResourcePool) StageTextureFromDisk(path string, flipY bool, cmdPool *CommandPool, queue *Queue) (*Texture, error) {
	img, err := LoadImage(path, flipY)
	if err != nil {
		return nil, err
	}
	return p.StageTexture(img, cmdPool, queue)
}

type Sampler struct {
	Device    *Device
	VKSampler vk.Sampler
}

func (s *Sampler) Destroy() {
	vk.DestroySampler(s.Device.VKDevice, s.VKSampler, nil)
}

// CreateSampler creates a sampler without anisotropy or mipmaps.
func (d *Device) CreateSampler(filter vk.Filter, mode vk.SamplerAddressMode) (*Sampler, error) {
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter,
		MinFilter:               filter,
		AddressModeU:            mode,
		AddressModeV:            mode,
		AddressModeW:            mode,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
	}
	var sampler vk.Sampler
	if err := vk.Error(vk.CreateSampler(d.VKDevice, &info, nil, &sampler)); err != nil {
		return nil, err
	}
	return &Sampler{Device: d, VKSampler: sampler}, nil
}
