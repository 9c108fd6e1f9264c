package vulkan

/**
 * @brief Max number of descriptor sets in a pipeline layout: two per resource signature.
 */
const VULKAN_MAX_DESCRIPTOR_SETS uint32 = 16

/**
 * @brief Descriptor count used for runtime-sized arrays.
 * @todo TODO: make configurable
 */
const VULKAN_RUNTIME_ARRAY_DESCRIPTOR_COUNT uint32 = 1024
