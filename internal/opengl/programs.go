package opengl

// Built-in shader programs. Uniform names follow the resource package
// constants; every program declares only the subset it consumes.

const objectVertexSource = `#version 410 core

layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec4 inColor;

uniform mat4 u_modelMatrix;
uniform mat3 u_normalMatrix;
uniform mat4 u_viewProjMatrix;

out vec3 worldPos;
out vec3 worldNormal;
out vec4 vertexColor;

void main() {
    vec4 world = u_modelMatrix * vec4(inPosition, 1.0);
    worldPos = world.xyz;
    worldNormal = normalize(u_normalMatrix * inNormal);
    vertexColor = inColor;
    gl_Position = u_viewProjMatrix * world;
}
`

const objectFragmentSource = `#version 410 core

const int MAX_LIGHTS = 4;
const int MAX_RANGES = 8;

in vec3 worldPos;
in vec3 worldNormal;
in vec4 vertexColor;

uniform vec3 u_eyePos;
uniform vec3 u_dirLights[MAX_LIGHTS];
uniform vec3 u_dirLightColors[MAX_LIGHTS];
uniform int u_numDirLights;
uniform float u_lod;

uniform sampler2DShadow u_shadowMaps[MAX_RANGES];
uniform mat4 u_shadowMatrices[MAX_RANGES];
uniform int u_numRanges;

out vec4 fragColor;

float shadowFactor(vec3 pos) {
    for (int i = 0; i < u_numRanges; i++) {
        vec4 lightClip = u_shadowMatrices[i] * vec4(pos, 1.0);
        vec3 coords = lightClip.xyz / lightClip.w;
        if (all(lessThan(abs(coords), vec3(1.0)))) {
            coords = coords * 0.5 + 0.5;
            return texture(u_shadowMaps[i], coords);
        }
    }
    return 1.0;
}

void main() {
    vec3 normal = normalize(worldNormal);
    vec3 lit = vec3(0.08) * vertexColor.rgb;
    float shadow = shadowFactor(worldPos);
    for (int i = 0; i < u_numDirLights; i++) {
        float diffuse = max(dot(normal, -u_dirLights[i]), 0.0);
        vec3 viewDir = normalize(u_eyePos - worldPos);
        vec3 reflectDir = reflect(u_dirLights[i], normal);
        // Specular fades with the detail level so distant low-detail
        // geometry does not shimmer.
        float specular = pow(max(dot(viewDir, reflectDir), 0.0), 24.0) * u_lod;
        lit += shadow * u_dirLightColors[i] *
            (diffuse * vertexColor.rgb + specular * 0.3);
    }
    fragColor = vec4(lit, vertexColor.a);
}
`

const depthVertexSource = `#version 410 core

layout(location = 0) in vec3 inPosition;

uniform mat4 u_modelMatrix;
uniform mat4 u_viewProjMatrix;

void main() {
    gl_Position = u_viewProjMatrix * u_modelMatrix * vec4(inPosition, 1.0);
}
`

const depthFragmentSource = `#version 410 core

void main() {
}
`

const backgroundVertexSource = `#version 410 core

layout(location = 0) in vec3 inPosition;

out vec4 clipPos;

void main() {
    clipPos = vec4(inPosition.xy, 1.0, 1.0);
    gl_Position = clipPos;
}
`

const backgroundFragmentSource = `#version 410 core

in vec4 clipPos;

uniform mat4 u_viewDirectionProjectionInverse;

out vec4 fragColor;

void main() {
    vec4 dir4 = u_viewDirectionProjectionInverse * clipPos;
    vec3 dir = normalize(dir4.xyz / dir4.w);
    // Simple gradient space background; a cubemap sampler slots in here
    // unchanged.
    float up = dir.y * 0.5 + 0.5;
    vec3 color = mix(vec3(0.01, 0.01, 0.03), vec3(0.0, 0.0, 0.12), up);
    fragColor = vec4(color, 1.0);
}
`

const billboardVertexSource = `#version 410 core

layout(location = 0) in vec3 inPosition;

uniform mat4 u_modelMatrix;
uniform mat4 u_viewMatrix;
uniform mat4 u_projMatrix;
uniform float u_billboardSize;

out vec2 quadCoord;

void main() {
    // Expand the quad in view space so it always faces the camera.
    vec4 center = u_viewMatrix * u_modelMatrix * vec4(0.0, 0.0, 0.0, 1.0);
    vec4 corner = center + vec4(inPosition.xy * u_billboardSize, 0.0, 0.0);
    quadCoord = inPosition.xy;
    gl_Position = u_projMatrix * corner;
}
`

const billboardFragmentSource = `#version 410 core

in vec2 quadCoord;

uniform vec4 u_color;
uniform float u_luminosityFactors;

out vec4 fragColor;

void main() {
    float falloff = 1.0 - clamp(length(quadCoord), 0.0, 1.0);
    fragColor = vec4(u_color.rgb, u_color.a * falloff * u_luminosityFactors);
}
`

const pointVertexSource = `#version 410 core

layout(location = 0) in vec3 inPosition;

uniform mat4 u_modelMatrix;
uniform mat4 u_viewProjMatrix;
uniform vec3 u_shift;
uniform float u_farthestZ;

void main() {
    vec3 pos = (u_modelMatrix * vec4(inPosition, 1.0)).xyz;
    // Wrap shifted points back into the cube around the origin so the
    // field is endless.
    pos = mod(pos + u_shift + vec3(u_farthestZ), vec3(2.0 * u_farthestZ)) - vec3(u_farthestZ);
    gl_Position = u_viewProjMatrix * vec4(pos, 1.0);
    gl_PointSize = 2.0;
}
`

const pointFragmentSource = `#version 410 core

uniform vec4 u_color;

out vec4 fragColor;

void main() {
    fragColor = u_color;
}
`

// NewObjectShader builds the lit, shadow-receiving program used by LOD
// meshes.
func NewObjectShader() (*Shader, error) {
	return NewShader(objectVertexSource, objectFragmentSource)
}

// NewDepthShader builds the positions-only program bound during shadow
// passes.
func NewDepthShader() (*Shader, error) {
	return NewShader(depthVertexSource, depthFragmentSource)
}

// NewBackgroundShader builds the full-viewport background program.
func NewBackgroundShader() (*Shader, error) {
	return NewShader(backgroundVertexSource, backgroundFragmentSource)
}

// NewBillboardShader builds the camera-facing quad program shared by
// billboards and particles.
func NewBillboardShader() (*Shader, error) {
	return NewShader(billboardVertexSource, billboardFragmentSource)
}

// NewPointShader builds the wrapped point-field program used by dust
// clouds.
func NewPointShader() (*Shader, error) {
	return NewShader(pointVertexSource, pointFragmentSource)
}
