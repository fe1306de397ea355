package microvulkan

import (
	"encoding/binary"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CacheMagic tags pipeline cache files written by this package
const CacheMagic uint32 = 0x434B564D

// cacheHeaderSize is Magic, VendorID, DeviceID, CRC32 and the 64 bit payload size
const cacheHeaderSize = 4*4 + 8

// CacheHeader precedes the pipeline cache payload on disk, little endian
type CacheHeader struct {
	Magic       uint32
	VendorID    uint32
	DeviceID    uint32
	CRC32       uint32
	PayloadSize uint64
}

// EncodeCacheBlob prefixes payload with a header identifying the device and the payload's CRC
func EncodeCacheBlob(vendorID, deviceID uint32, payload []byte) []byte {
	ret := make([]byte, cacheHeaderSize, cacheHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(ret[0:], CacheMagic)
	binary.LittleEndian.PutUint32(ret[4:], vendorID)
	binary.LittleEndian.PutUint32(ret[8:], deviceID)
	binary.LittleEndian.PutUint32(ret[12:], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint64(ret[16:], uint64(len(payload)))
	return append(ret, payload...)
}

// DecodeCacheHeader reads the header at the start of blob
func DecodeCacheHeader(blob []byte) (CacheHeader, bool) {
	if len(blob) < cacheHeaderSize {
		return CacheHeader{}, false
	}
	return CacheHeader{
		Magic:       binary.LittleEndian.Uint32(blob[0:]),
		VendorID:    binary.LittleEndian.Uint32(blob[4:]),
		DeviceID:    binary.LittleEndian.Uint32(blob[8:]),
		CRC32:       binary.LittleEndian.Uint32(blob[12:]),
		PayloadSize: binary.LittleEndian.Uint64(blob[16:]),
	}, true
}

// DecodeCacheBlob returns the payload of blob, false if the blob is truncated, was written by
// another device or fails the CRC check. A rejected blob must be treated as an empty cache.
func DecodeCacheBlob(blob []byte, vendorID, deviceID uint32) ([]byte, bool) {
	h, ok := DecodeCacheHeader(blob)
	if !ok || h.Magic != CacheMagic {
		return nil, false
	}
	if h.VendorID != vendorID || h.DeviceID != deviceID {
		return nil, false
	}
	payload := blob[cacheHeaderSize:]
	if uint64(len(payload)) != h.PayloadSize {
		return nil, false
	}
	if crc32.ChecksumIEEE(payload) != h.CRC32 {
		return nil, false
	}
	return payload, true
}

// PipelineCache is a native pipeline cache persisted to disk between runs
type PipelineCache struct {
	driver Driver
	path   string
	spec   DeviceSpecification
	handle vk.PipelineCache
}

// LoadPipelineCache creates a pipeline cache seeded from path. A missing, foreign or corrupt file
// yields an empty cache, never an error.
func LoadPipelineCache(driver Driver, path string, log *slog.Logger) (*PipelineCache, error) {
	ret := &PipelineCache{driver: driver, path: path, spec: driver.Specification()}

	var initial []byte
	blob, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		log.Warn("pipeline cache unreadable", "path", path, "err", err)
	default:
		var ok bool
		if initial, ok = DecodeCacheBlob(blob, ret.spec.VendorID, ret.spec.DeviceID); !ok {
			log.Warn("pipeline cache discarded", "path", path, "size", len(blob))
		}
	}

	ret.handle, err = driver.CreatePipelineCache(initial)
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline cache")
	}
	return ret, nil
}

// Save writes the cache contents next to path and renames it into place
func (p *PipelineCache) Save() error {
	if p.path == "" || p.handle == nil {
		return nil
	}
	data, err := p.driver.GetPipelineCacheData(p.handle)
	if err != nil {
		return errors.Wrap(err, "get pipeline cache data")
	}
	blob := EncodeCacheBlob(p.spec.VendorID, p.spec.DeviceID, data)

	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*")
	if err != nil {
		return errors.Wrap(err, "create pipeline cache file")
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write pipeline cache")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "close pipeline cache")
	}
	return errors.Wrap(os.Rename(tmp.Name(), p.path), "rename pipeline cache")
}

func (p *PipelineCache) Handle() vk.PipelineCache {
	return p.handle
}

// Limit is the per set descriptor limit of the device for the descriptor type
func (p *PipelineCache) Limit(t vk.DescriptorType) uint32 {
	return p.spec.Limits.Limit(t)
}

func (p *PipelineCache) Destroy() {
	if p.handle != nil {
		p.driver.DestroyPipelineCache(p.handle)
		p.handle = nil
	}
}

// DescriptorLimits are the per descriptor set limits reported by the device
type DescriptorLimits struct {
	Samplers              uint32
	SampledImages         uint32
	StorageImages         uint32
	UniformBuffers        uint32
	UniformBuffersDynamic uint32
	StorageBuffers        uint32
	StorageBuffersDynamic uint32
	InputAttachments      uint32
}

// Limit maps a descriptor type to the limit bounding it. Texel buffers share the image limits.
func (l DescriptorLimits) Limit(t vk.DescriptorType) uint32 {
	switch t {
	case vk.DescriptorTypeSampler:
		return l.Samplers
	case vk.DescriptorTypeCombinedImageSampler, vk.DescriptorTypeSampledImage, vk.DescriptorTypeUniformTexelBuffer:
		return l.SampledImages
	case vk.DescriptorTypeStorageImage, vk.DescriptorTypeStorageTexelBuffer:
		return l.StorageImages
	case vk.DescriptorTypeUniformBuffer:
		return l.UniformBuffers
	case vk.DescriptorTypeStorageBuffer:
		return l.StorageBuffers
	case vk.DescriptorTypeUniformBufferDynamic:
		return l.UniformBuffersDynamic
	case vk.DescriptorTypeStorageBufferDynamic:
		return l.StorageBuffersDynamic
	case vk.DescriptorTypeInputAttachment:
		return l.InputAttachments
	}
	return 0
}
